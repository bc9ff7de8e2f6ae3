// Package lookup resolves certificate identifiers against the lookup site.
//
// Resolution is a two-step dance the site imposes. First the landing page
// is parsed to discover the certificate lookup form: the numeric input
// field, the form action, and any hidden fields the site requires. Then
// each identifier is submitted through that form, and the resulting detail
// page is parsed for media references.
//
// The form is discovered once per run. Sites change markup rarely within
// a single session, and re-parsing the landing page per identifier would
// double the billable request count.
package lookup

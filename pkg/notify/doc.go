// Package notify mails batch results to the requester.
//
// The body is assembled from embedded plain-text templates: a success
// section listing the OPeNDAP links and how long the on-demand files
// stay available, and a failure section naming the products that could
// not be served. Empty sections disappear and blank lines collapse, so
// an all-successful run reads cleanly. The per-run log file travels as
// an attachment.
//
// Delivery uses SMTP. When notification is not configured the Mailer
// still exists and silently drops sends, keeping the pipeline code free
// of conditionals.
package notify

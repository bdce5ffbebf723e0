// Package eval measures classifier quality against a running gear-smarts API.
// It reads labeled datasets, trains a namespace over HTTP, classifies held-out
// rows and reports one-vs-rest statistics for a chosen positive class.
package eval

// Package storage handles the local filesystem side of a batch run: the
// download directory with its sequential gsv_<index>.jpg naming, the plain
// text links file, and the JSON metadata file with its overwrite and append
// modes.
package storage

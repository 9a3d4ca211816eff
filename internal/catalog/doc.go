// Package catalog resolves the secret-type catalog from configuration
// directories.
//
// Each directory may contain three sub-directories, each holding one file per
// secret type, named after the type:
//
//	patterns/<type>       one regular expression per line
//	substitutions/<type>  "secret = placeholder" per line
//	validators/<type>     an executable; exit status 0 confirms a candidate
//
// Blank lines and lines starting with # are ignored. A directory may also
// hold a types.yaml file describing the same three things inline.
//
// Directories are consulted in order and the first source found for a given
// (type, kind) pair wins, so earlier directories override later ones one kind
// at a time.
package catalog

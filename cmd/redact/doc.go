// Redact replaces secrets in text files with stable placeholders.
//
// Secret types are described by configuration directories holding
// patterns, predefined substitutions and validator executables. Each distinct
// secret found in a run gets one placeholder, shared by every input.
//
// Usage:
//
//	redact app.log                      # redact a file to stdout
//	redact -c ./conf -n logs/           # use only ./conf, redact a directory
//	cat dump.txt | redact -             # redact stdin
//	redact -w ./mapping -o ./out logs/  # save redacted copies and the mapping
//	redact -c ./mapping logs/more.log   # reuse a saved mapping
//	redact types                        # list resolved secret types
package main

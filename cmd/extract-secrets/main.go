// Command extract-secrets scans a text file for likely credentials and
// writes them to output/extracted-secrets.<format>.
package main

import "github.com/trancendos/secrets-portal/cmd/portal"

func main() { portal.ExecuteExtract() }

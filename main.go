package main

import "github.com/trancendos/secrets-portal/cmd/portal"

func main() { portal.Execute() }

// Command pdfsign signs, verifies and stamps PDF documents.
package main

import "github.com/inkseal/pdfsign/cli"

func main() {
	cli.Run()
}

// Command nienso is the operator CLI: parse ledger text, look up Sao/Hạn,
// run OCR and batch-process an inbox folder.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// inhalrisk scores occupational inhalation risk with the INRS/NTP-937
// simplified method.
package main

import "github.com/ppiankov/inhalrisk/internal/cli"

func main() {
	cli.Execute()
}

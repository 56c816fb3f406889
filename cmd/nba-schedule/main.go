// Command nba-schedule extracts the matchups listed on an NBA schedule page.
package main

import "github.com/pfrederiksen/nba-schedule/internal/cli"

func main() {
	cli.Execute()
}

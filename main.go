package main

import "referral-rewards-system/cli"

func main() {
	cli.Execute()
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/dbh-bot/dbh/cmd"

func main() {
	cmd.Execute()
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/Turquoise-stack/FLAT-CLUB/cmd"

func main() {
	cmd.Execute()
}

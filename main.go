/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/alejoacosta74/thalex-api/cmd"

func main() {
	cmd.Execute()
}

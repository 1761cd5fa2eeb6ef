/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/remixlab/remix-api/cmd"

// @title           Remix API
// @version         1.0.0
// @description     An AI DJ backend: track analysis, style-driven remix rendering, and live visualization
// @contact.name    API Support
// @contact.url     https://github.com/remixlab/remix-api
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
func main() {
	cmd.Execute()
}

// Command skinctl runs skin analyses and catalog queries from the terminal.
package main

func main() {
	Execute()
}

// Command axnav inspects and drives the UI tree of running applications.
package main

func main() {
	Execute()
}

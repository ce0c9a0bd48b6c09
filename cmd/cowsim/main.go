// Command cowsim boots the physical frame allocator on a simulated machine
// and exercises it from the command line.
package main

func main() {
	execute()
}

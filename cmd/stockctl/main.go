// Command stockctl is the operator CLI for stockcore.
package main

func main() {
	Execute()
}

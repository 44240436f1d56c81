// Command gazette turns raw news material into publishable articles through
// a four-stage generative pipeline with human review between stages.
package main

func main() {
	Execute()
}

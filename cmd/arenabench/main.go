// Command arenabench replays allocation workloads against the arena
// allocator and, for comparison, against plain Go allocation.
package main

func main() {
	execute()
}

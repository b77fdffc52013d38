// Command proctorvision monitors exam candidates through a webcam and flags
// frames where the head is turned, hands are missing or a prohibited device
// is visible.
package main

func main() {
	Execute()
}

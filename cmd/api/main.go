// Command medscan runs the medical image analysis API and its operator tools.
//
// Usage:
//
//	medscan serve
//	medscan migrate
//	medscan analyze <image>
//	medscan history --owner <id>
package main

func main() {
	Execute()
}

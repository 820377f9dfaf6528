package dblock

import (
	"net"
	"time"
)

// Test packages that share the live database serialize on a local TCP
// listener: only one package's TestMain can hold the port at a time.
const lockAddr = "127.0.0.1:45433"

func Acquire() func() {
	for {
		ln, err := net.Listen("tcp", lockAddr)
		if err == nil {
			return func() { ln.Close() }
		}
		time.Sleep(50 * time.Millisecond)
	}
}

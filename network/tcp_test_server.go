package network

import (
	"fmt"
	"net"
	"sync"
)

// TCPTestServer is for mocking TCP services in unit tests,
// such as the FTP server the loader downloads from.
type TCPTestServer struct {
	listener    net.Listener
	isListening bool
	mutex       sync.Mutex
}

// NewTCPServer creates a new TCP server.
// Use listenAddress "127.0.0.1:0", then check TCPTestServer.Addr().String()
// to get the address we're listening on. (System assigns port when port is zero.)
func NewTCPTestServer(listenAddress string, callback func(net.Conn)) *TCPTestServer {
	addr, _ := net.ResolveTCPAddr("tcp", listenAddress)
	listener, err := net.Listen("tcp", addr.String())
	if err != nil {
		panic(fmt.Sprintf("Error listening tcp server: %v", err.Error()))
	}
	server := &TCPTestServer{
		listener:    listener,
		isListening: true,
	}
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if !server.IsListening() {
					return
				}
				panic(fmt.Sprintf("Error accepting tcp connection: %v", err.Error()))
			}
			go callback(conn)
		}
	}()
	return server
}

// Addr returns the address the server is listening on.
func (server *TCPTestServer) Addr() net.Addr {
	return server.listener.Addr()
}

func (server *TCPTestServer) Close() {
	server.mutex.Lock()
	server.isListening = false
	server.mutex.Unlock()
	server.listener.Close()
}

func (server *TCPTestServer) IsListening() bool {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return server.isListening
}

package network_test

import (
	"bufio"
	"fmt"
	"github.com/etdloader/etdloader/network"
	"github.com/etdloader/etdloader/util/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// ftpScript answers FTP control-channel commands without ever
// opening a data connection, which is enough to test login,
// directory changes and renames.
type ftpScript struct {
	password string
	commands []string
	mutex    sync.Mutex
}

func (script *ftpScript) serve(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	fmt.Fprint(conn, "220 ETD vendor FTP ready\r\n")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		script.mutex.Lock()
		script.commands = append(script.commands, line)
		script.mutex.Unlock()
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "USER":
			fmt.Fprint(conn, "331 Password required\r\n")
		case "PASS":
			if strings.TrimPrefix(line, "PASS ") == script.password {
				fmt.Fprint(conn, "230 Logged in\r\n")
			} else {
				fmt.Fprint(conn, "530 Login incorrect\r\n")
			}
		case "TYPE":
			fmt.Fprint(conn, "200 Type set to I\r\n")
		case "CWD":
			if strings.Contains(line, "nowhere") {
				fmt.Fprint(conn, "550 No such directory\r\n")
			} else {
				fmt.Fprint(conn, "250 Directory changed\r\n")
			}
		case "RNFR":
			fmt.Fprint(conn, "350 Ready for RNTO\r\n")
		case "RNTO":
			fmt.Fprint(conn, "250 Rename successful\r\n")
		case "QUIT":
			fmt.Fprint(conn, "221 Goodbye\r\n")
			return
		default:
			fmt.Fprint(conn, "502 Command not implemented\r\n")
		}
	}
}

func (script *ftpScript) received(command string) bool {
	script.mutex.Lock()
	defer script.mutex.Unlock()
	for _, c := range script.commands {
		if c == command {
			return true
		}
	}
	return false
}

func TestFTPTransport(t *testing.T) {
	script := &ftpScript{password: "secret"}
	server := network.NewTCPTestServer("127.0.0.1:0", script.serve)
	defer server.Close()

	transport := network.NewFTPTransport(server.Addr().String(), 5*time.Second,
		logger.DiscardLogger("ftp_transport_test"))

	// Nothing works before login.
	assert.NotNil(t, transport.ChangeDir("/incoming"))
	_, err := transport.ListFiles("*.zip")
	assert.NotNil(t, err)
	assert.NotNil(t, transport.Fetch("/tmp/x.zip", "x.zip"))
	assert.NotNil(t, transport.Move("x.zip", "/incoming", "/processed"))

	err = transport.Login("etdloader", "wrong")
	require.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "FTP login as etdloader failed"))

	require.Nil(t, transport.Login("etdloader", "secret"))
	require.Nil(t, transport.ChangeDir("/incoming"))
	assert.NotNil(t, transport.ChangeDir("/nowhere"))
	require.Nil(t, transport.Move("etdadmin_upload_1.zip", "/incoming", "/outgoing/processed"))
	require.Nil(t, transport.Close())
	require.Nil(t, transport.Close())

	assert.True(t, script.received("CWD /incoming"))
	assert.True(t, script.received("RNFR /incoming/etdadmin_upload_1.zip"))
	assert.True(t, script.received("RNTO /outgoing/processed/etdadmin_upload_1.zip"))
}

func TestFTPTransportCannotConnect(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	addr := listener.Addr().String()
	listener.Close()

	transport := network.NewFTPTransport(addr, time.Second, logger.DiscardLogger("ftp_transport_test"))
	err = transport.Login("etdloader", "secret")
	require.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "Cannot connect to FTP server"))
}

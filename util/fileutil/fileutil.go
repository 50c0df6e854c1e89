package fileutil

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/util"
	"hash"
	"io"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
)

// LoaderHome returns the absolute path to the etdloader root directory,
// which contains source, config, stylesheets and test files. You can
// set this explicitly by defining an environment variable called
// ETDLOADER_HOME. Otherwise, this function will try to infer the value
// by appending to the environment variable GOPATH. If neither of
// those variables is set, this returns an error.
func LoaderHome() (loaderHome string, err error) {
	loaderHome = os.Getenv("ETDLOADER_HOME")
	if loaderHome == "" {
		goHome := os.Getenv("GOPATH")
		if goHome != "" {
			loaderHome = filepath.Join(goHome, "src", "github.com", "etdloader", "etdloader")
		} else {
			err = fmt.Errorf("Cannot determine etdloader home because neither " +
				"ETDLOADER_HOME nor GOPATH is set in environment.")
		}
	}
	if loaderHome != "" {
		loaderHome, err = filepath.Abs(loaderHome)
	}
	return loaderHome, err
}

// LoadRelativeFile reads the file at the specified path
// relative to ETDLOADER_HOME and returns the contents as a byte array.
func LoadRelativeFile(relativePath string) ([]byte, error) {
	absPath, err := RelativeToAbsPath(relativePath)
	if err != nil {
		return nil, err
	}
	return ioutil.ReadFile(absPath)
}

// Reads data from the file at absPath (an absolute path)
// and coverts it to an object of whatever type param obj
// is. Returns an error if there's a problem reading the
// file or unmarshalling the data into the type you passed in.
func JsonFileToObject(absPath string, obj interface{}) error {
	data, err := ioutil.ReadFile(absPath)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, obj)
}

// Converts a relative path within the etdloader directory tree
// to an absolute path.
func RelativeToAbsPath(relativePath string) (string, error) {
	if filepath.IsAbs(relativePath) {
		return relativePath, nil
	}
	loaderHome, err := LoaderHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(loaderHome, relativePath), nil
}

// Returns true if the file at path exists, false if not.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	if err != nil && os.IsNotExist(err) {
		return false
	}
	return true
}

// Expands the tilde in a directory path to the current
// user's home directory. For example, on Linux, ~/data
// would expand to something like /home/josie/data
func ExpandTilde(filePath string) (string, error) {
	if strings.Index(filePath, "~") < 0 {
		return filePath, nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	homeDir := usr.HomeDir + "/"
	expandedDir := strings.Replace(filePath, "~/", homeDir, 1)
	return expandedDir, nil
}

// RecursiveFileList returns a list of all files in path dir
// and its subfolders. It does not return directories.
func RecursiveFileList(dir string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.Walk(dir, func(filePath string, f os.FileInfo, err error) error {
		if f != nil && f.IsDir() == false {
			files = append(files, filePath)
		}
		return nil
	})
	return files, err
}

// RecursiveEntryList returns the paths of all files AND directories
// under dir, relative to dir, in lexical order. The root itself is not
// included, and neither is any entry whose relative path is listed in
// exclude. Directories always sort before their contents.
func RecursiveEntryList(dir string, exclude ...string) ([]string, error) {
	entries := make([]string, 0)
	err := filepath.Walk(dir, func(filePath string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(dir, filePath)
		if err != nil {
			return err
		}
		if relPath == "." || relPath == ".." || util.StringListContains(exclude, relPath) {
			return nil
		}
		entries = append(entries, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	return entries, nil
}

// Returns true if the path specified by dir has at least minLength
// characters and at least minSeparators path separators. This is
// for testing paths you want pass into os.RemoveAll(), so you don't
// wind up deleting "/" or "/etc" or something catastrophic like that.
func LooksSafeToDelete(dir string, minLength, minSeparators int) bool {
	separator := string(os.PathSeparator)
	separatorCount := (len(dir) - len(strings.Replace(dir, separator, "", -1)))
	return len(dir) >= minLength && separatorCount >= minSeparators
}

// RecreateDirectory deletes dir, if it exists, and creates it again,
// empty. It refuses to delete anything that does not look safe to
// delete.
func RecreateDirectory(dir string) error {
	if FileExists(dir) {
		if !LooksSafeToDelete(dir, 12, 3) {
			return fmt.Errorf("Refusing to delete directory '%s' because "+
				"it does not look safe to delete", dir)
		}
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return os.MkdirAll(dir, 0755)
}

// CopyFile copies the file at src to dest, replacing dest if it exists.
// Returns the number of bytes copied.
func CopyFile(src, dest string) (int64, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()
	destFile, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	bytesCopied, err := io.Copy(destFile, srcFile)
	if err != nil {
		destFile.Close()
		return bytesCopied, err
	}
	return bytesCopied, destFile.Close()
}

// CalculateChecksum calculates the md5 or sha256 checksum of a file.
// Param pathToFile is the path the file, and algorithm should be one
// of constants.AlgMd5 or constante.AlgSha256. Returns the hex-encoded
// digest or an error.
func CalculateChecksum(pathToFile, algorithm string) (string, error) {
	if !util.StringListContains(constants.ChecksumAlgorithms, algorithm) {
		return "", fmt.Errorf("Unsupported algorithm: %s", algorithm)
	}
	var _hash hash.Hash = nil
	if algorithm == constants.AlgMd5 {
		_hash = md5.New()
	} else if algorithm == constants.AlgSha256 {
		_hash = sha256.New()
	} else {
		// In case we someday add a new algorithm to constants.ChecksumAlgorithms
		return "", fmt.Errorf("Need to write in support for new digest algorithm %s", algorithm)
	}
	inputFile, err := os.Open(pathToFile)
	if err != nil {
		return "", err
	}
	defer inputFile.Close()
	if _, err = io.Copy(_hash, inputFile); err != nil {
		return "", err
	}
	digest := fmt.Sprintf("%x", _hash.Sum(nil))
	return digest, nil
}

// StringChecksum returns the hex-encoded sha256 digest of str.
func StringChecksum(str string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(str)))
}

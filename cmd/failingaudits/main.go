// failingaudits lists hosts whose latest audit has a poor lighthouse category
// or an F observatory grade.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wyseguys/site-audit/storage"
)

func main() {
	dbPath := flag.String("db", "snapshots.db", "path to the snapshots bolt db")
	flag.Parse()

	snaps, err := storage.OpenSnapshots(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(2)
	}
	defer snaps.Close()

	n, err := listFailing(os.Stdout, snaps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error iterating snapshots: %v\n", err)
		os.Exit(2)
	}
	if n > 0 {
		os.Exit(1)
	}
}

// listFailing prints one line per failing host and returns how many there were.
func listFailing(w io.Writer, snaps *storage.Snapshots) (int, error) {
	n := 0
	err := snaps.ForEachSnapshot(func(s storage.Snapshot) error {
		failing := s.Failing()
		if len(failing) == 0 {
			return nil
		}
		n++
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.Host, s.AuditedAt.Format("2006-01-02"), s.URL, strings.Join(failing, ", "))
		return err
	})
	return n, err
}

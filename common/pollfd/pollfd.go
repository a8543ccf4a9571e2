// Package pollfd exchanges readiness records with the platform descriptor
// polling syscall: poll on unix, WSAPoll on windows.
package pollfd

import "github.com/sagernet/sing-pollable/common"

// WaitRead blocks until at least one record is readable or errored, with no
// timeout. Observed flags are updated in place.
func WaitRead(records []Pollfd) error {
	return common.Error(Poll(records, -1))
}

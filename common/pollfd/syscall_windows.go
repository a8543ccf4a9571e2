package pollfd

//go:generate go run golang.org/x/sys/windows/mkwinsyscall -output zsyscall_windows.go syscall_windows.go

//sys wsaPoll(fds *Pollfd, nfds uint32, timeout int32) (n int32, err error) [failretval==-1] = ws2_32.WSAPoll

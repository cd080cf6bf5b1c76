package launcher

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}

func defaultOpener() string {
	return "explorer"
}

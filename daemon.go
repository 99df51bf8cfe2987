package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

const daemonEnv = "WOWZA_BOUNCER_DAEMONIZED"

func daemonize() {
	if os.Getenv(daemonEnv) == "1" {
		// 已经是子进程，无需再次守护化
		return
	}

	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Env = append(os.Environ(), daemonEnv+"=1")
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to start in background:", err)
		os.Exit(1)
	}

	fmt.Println("running in background (PID:", cmd.Process.Pid, ")")
	os.Exit(0)
}

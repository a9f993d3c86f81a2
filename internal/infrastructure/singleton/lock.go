// Package singleton 保证同一数据目录只有一个守护进程实例
package singleton

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// LockFileName 锁文件名，位于数据根目录下
const LockFileName = "daemon.lock"

// Lock 持有的实例锁
type Lock struct {
	path string
}

// CheckAndLock 尝试在数据目录下创建锁文件
// 返回锁和 error
// 如果已有实例运行，返回 nil 锁和 nil error（调用者应退出）
// 如果锁文件残留但进程已不存在，清理后重新加锁
func CheckAndLock(dataDir string) (*Lock, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	path := filepath.Join(dataDir, LockFileName)

	lock, err := tryLock(path)
	if err == nil {
		return lock, nil
	}
	if !os.IsExist(err) {
		return nil, fmt.Errorf("创建锁文件失败: %w", err)
	}

	// 锁文件已存在，检查持有者进程是否还活着
	if isInstanceRunning(path) {
		// 已有实例运行，返回 nil 表示应该退出
		return nil, nil
	}

	// 残留锁文件，清理后重试一次
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("清理残留锁文件失败: %w", err)
	}

	lock, err = tryLock(path)
	if err != nil {
		return nil, fmt.Errorf("重新创建锁文件失败: %w", err)
	}
	return lock, nil
}

// tryLock 以独占方式创建锁文件并写入当前进程 PID
func tryLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		os.Remove(path)
		return nil, err
	}

	return &Lock{path: path}, nil
}

// Release 释放锁
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除锁文件失败: %w", err)
	}
	return nil
}

// Path 返回锁文件路径
func (l *Lock) Path() string {
	return l.path
}

// isInstanceRunning 检查锁文件记录的进程是否还在运行
func isInstanceRunning(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		// 锁文件内容损坏，视为残留
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// 信号 0 只做存在性检查，不实际发送
	return proc.Signal(syscall.Signal(0)) == nil
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// 日期和时间字段拼接后的格式，例如 2015-07-13T09:20:44
const accessTimeLayout = "2006-01-02T15:04:05"

// 访问日志中用到的列
const (
	fieldDate = iota
	fieldTime
	_
	fieldEvent
	fieldCategory

	minAccessFields
)

const maxLogLineSize = 1024 * 1024

func parseAccessRecord(line string) (AccessRecord, bool) {
	fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
	if len(fields) < minAccessFields {
		return AccessRecord{}, false
	}
	return AccessRecord{
		Date:     fields[fieldDate],
		Time:     fields[fieldTime],
		Event:    fields[fieldEvent],
		Category: fields[fieldCategory],
	}, true
}

// Timestamp 按本地时区解析记录的时间
func (r AccessRecord) Timestamp() (time.Time, error) {
	return time.ParseInLocation(accessTimeLayout, r.Date+"T"+r.Time, time.Local)
}

func readLogLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// findLastAccess 从最后一行往前找第一条 event 和 category 都匹配的记录。
// 字段不足或时间无法解析的行直接跳过。
func findLastAccess(lines []string, event, category string) (time.Time, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		rec, ok := parseAccessRecord(lines[i])
		if !ok || rec.Event != event || rec.Category != category {
			continue
		}
		ts, err := rec.Timestamp()
		if err != nil {
			logger.Debugw("skipping access record with bad timestamp", "line", i+1, "error", err)
			continue
		}
		return ts, true
	}
	return time.Time{}, false
}

// 读取整个访问日志，确定服务器最近一次被访问的时间
func scanLastAccess(cfg Config) ScanResult {
	lines, err := readLogLines(cfg.LogPath)
	if err != nil {
		return ScanResult{Status: ScanFailed, Err: fmt.Errorf("read access log %s: %w", cfg.LogPath, err)}
	}

	ts, ok := findLastAccess(lines, cfg.Event, cfg.Category)
	if !ok {
		return ScanResult{Status: ScanNotFound}
	}
	return ScanResult{Status: ScanFound, LastAccess: ts}
}

package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 时间段编码的粒度
const SlotInterval = 15 * time.Minute

var ErrInvalidTimeSlot = errors.New("时间段描述格式错误")

// ParsedTimeSlot 为解析后的时间段，Start 和 End 均为 24 小时制的 "15:04"
type ParsedTimeSlot struct {
	Days  string
	Start string
	End   string
	Codes []string // 例如 MW1130、MW1145 ...
}

func (p *ParsedTimeSlot) String() string {
	return strings.Join(p.Codes, "\n")
}

// ParseTimeSlot 解析形如 "MW 11:30 - 12:45pm" 的时间段描述
func ParseTimeSlot(description string) (*ParsedTimeSlot, error) {
	fields := strings.Fields(description)
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, description)
	}

	// 去掉时间之后的附加说明，例如 "Evening"
	timeFields := fields[1:]
	for len(timeFields) > 0 && !strings.ContainsAny(timeFields[len(timeFields)-1], "0123456789") {
		timeFields = timeFields[:len(timeFields)-1]
	}

	start, end, err := normalizeTimeRange(strings.Join(timeFields, " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, description)
	}

	startTime, err := convertTo24h(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, description)
	}
	endTime, err := convertTo24h(end)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, description)
	}
	if endTime.Before(startTime) {
		return nil, fmt.Errorf("%w: 结束时间早于开始时间 %q", ErrInvalidTimeSlot, description)
	}

	parsed := &ParsedTimeSlot{
		Days:  fields[0],
		Start: startTime.Format("15:04"),
		End:   endTime.Format("15:04"),
	}
	for t := startTime; !t.After(endTime); t = t.Add(SlotInterval) {
		parsed.Codes = append(parsed.Codes, parsed.Days+t.Format("1504"))
	}

	return parsed, nil
}

// normalizeTimeRange 补全缺失的分钟和上下午
// 结束时间没有 am/pm 且小时数大于开始时间时视为下午；开始时间缺少 am/pm 时沿用结束时间的
func normalizeTimeRange(times string) (string, string, error) {
	parts := strings.Split(strings.ToLower(times), "-")
	if len(parts) != 2 {
		return "", "", ErrInvalidTimeSlot
	}

	start, startSuffix := splitMeridiem(strings.TrimSpace(parts[0]))
	end, endSuffix := splitMeridiem(strings.TrimSpace(parts[1]))
	if start == "" || end == "" {
		return "", "", ErrInvalidTimeSlot
	}
	if !strings.Contains(start, ":") {
		start += ":00"
	}
	if !strings.Contains(end, ":") {
		end += ":00"
	}

	startHour, err := strconv.Atoi(strings.Split(start, ":")[0])
	if err != nil {
		return "", "", ErrInvalidTimeSlot
	}
	endHour, err := strconv.Atoi(strings.Split(end, ":")[0])
	if err != nil {
		return "", "", ErrInvalidTimeSlot
	}

	if endSuffix == "" && startSuffix == "" && startHour < endHour {
		endSuffix = "pm"
	}
	// 12 点结尾时开始时间一定在上午，例如 11:30 - 12:45pm
	if startSuffix == "" && endSuffix == "pm" && endHour != 12 && startHour <= endHour {
		startSuffix = "pm"
	}

	return start + startSuffix, end + endSuffix, nil
}

func splitMeridiem(t string) (string, string) {
	for _, suffix := range []string{"am", "pm"} {
		if strings.HasSuffix(t, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(t, suffix)), suffix
		}
	}
	return t, ""
}

func convertTo24h(t string) (time.Time, error) {
	if strings.HasSuffix(t, "am") || strings.HasSuffix(t, "pm") {
		return time.Parse("3:04pm", t)
	}
	return time.Parse("15:04", t)
}

package timeutils

import "time"

// DateTimeLayout Формат даты и времени в сообщениях пользователю.
const DateTimeLayout = "2006-01-02 15:04:05"

func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

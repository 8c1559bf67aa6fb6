package report

import (
	"fmt"
	"io"
	"strings"
)

// Section headers for the weekly text report.
const (
	TextHeader             = "本周工作内容："
	TextHeaderClosedTasks  = "1. 完成的任务："
	TextHeaderClosedBugs   = "2. 修复的Bug："
	TextHeaderCreatedTasks = "3. 新建的任务："
	TextHeaderActiveTasks  = "4. 进行中的任务："
)

var sectionHeaders = map[Category]string{
	CategoryClosedTasks:  TextHeaderClosedTasks,
	CategoryClosedBugs:   TextHeaderClosedBugs,
	CategoryCreatedTasks: TextHeaderCreatedTasks,
	CategoryActiveTasks:  TextHeaderActiveTasks,
}

// FormatReport renders the weekly report as plain text.
func FormatReport(week WeekTasks) string {
	var b strings.Builder
	WriteReport(&b, week)
	return b.String()
}

// WriteReport writes the header and every non-empty section to out.
func WriteReport(out io.Writer, week WeekTasks) {
	fmt.Fprintf(out, "%s\n\n", TextHeader)
	for _, c := range Categories {
		printSection(out, sectionHeaders[c], week.Items(c))
	}
}

func printSection(out io.Writer, header string, items []WorkItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(out, header)
	for _, item := range items {
		fmt.Fprintf(out, "   - %s (%s)\n", item.TaskName, item.Project)
	}
	fmt.Fprintln(out)
}

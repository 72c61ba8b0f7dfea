package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redmonkez12/go-todo-api/internal/todo"
)

// FormatTodo renders one todo as a checklist line
func FormatTodo(t todo.Todo) string {
	if t.Completed {
		line := fmt.Sprintf("[x] %s  %s", doneStyle.Render(t.Text), subtleStyle.Render(t.ID))
		if t.CompletedAt != nil {
			at := time.UnixMilli(*t.CompletedAt).Local().Format(time.DateTime)
			line += subtleStyle.Render("  done " + at)
		}
		return line
	}
	return fmt.Sprintf("[ ] %s  %s", t.Text, subtleStyle.Render(t.ID))
}

// PrintTodos prints a titled checklist
func PrintTodos(w io.Writer, todos []todo.Todo) {
	open := 0
	for _, t := range todos {
		if !t.Completed {
			open++
		}
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Todos (%d open, %d total)", open, len(todos))))
	if len(todos) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("  nothing to do"))
		return
	}

	lines := make([]string, 0, len(todos))
	for _, t := range todos {
		lines = append(lines, "  "+FormatTodo(t))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

// PrintSuccess prints a success message.
func PrintSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

// PrintError prints an error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+msg))
}

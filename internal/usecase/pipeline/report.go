package pipeline

import (
	"sort"
	"strings"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
)

// BuildReport groups todos by owner. Owners are sorted lexically, todos keep
// their input order, and the text ends with exactly one newline.
func BuildReport(todos []entities.Todo) string {
	grouped := make(map[string][]entities.Todo)
	for _, todo := range todos {
		grouped[todo.Owner] = append(grouped[todo.Owner], todo)
	}

	owners := make([]string, 0, len(grouped))
	for owner := range grouped {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	var sb strings.Builder
	for i, owner := range owners {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(owner)
		sb.WriteString("\n")
		for _, todo := range grouped[owner] {
			sb.WriteString("- ")
			sb.WriteString(todo.Text)
			if todo.Due != nil && *todo.Due != "" {
				sb.WriteString(" (due: ")
				sb.WriteString(*todo.Due)
				sb.WriteString(")")
			}
			sb.WriteString("\n")
		}
	}

	if sb.Len() == 0 {
		return "\n"
	}
	return sb.String()
}

package tasks

import (
	"strconv"
	"strings"

	"github.com/teemow/taskplugin/internal/contentprovider"
)

// Authority is the content authority and package name of the Tasks app.
const Authority = "org.tasks"

// Content resource paths under Authority.
const (
	ResourceAgenda = "todoagenda"
	ResourceLists  = "lists"
	ResourceTasks  = "tasks"
)

// Column names exposed by the agenda and lists resources.
const (
	ColID        = "_id"
	ColTitle     = "title"
	ColDueDate   = "dueDate"
	ColCompleted = "completed"
	ColNotes     = "notes"
	ColListID    = "cdl_id"
	ColListName  = "cdl_name"
	ColListColor = "cdl_color"
)

var (
	// AgendaURI addresses the task rows.
	AgendaURI = contentprovider.BuildURI(Authority, ResourceAgenda)

	// ListsURI addresses the task lists.
	ListsURI = contentprovider.BuildURI(Authority, ResourceLists)
)

var (
	taskProjection = []string{ColID, ColTitle, ColDueDate, ColCompleted, ColNotes, ColListName, ColListColor}
	listProjection = []string{ColListID, ColListName, ColListColor}
)

// TaskURI returns the URI identifying a single task.
func TaskURI(id int64) string {
	return contentprovider.BuildURI(Authority, ResourceTasks, strconv.FormatInt(id, 10))
}

// TaskIDFromURI extracts the task id from a URI built by TaskURI.
func TaskIDFromURI(uri string) (string, bool) {
	authority, path, err := contentprovider.ParseURI(uri)
	if err != nil || authority != Authority {
		return "", false
	}
	id, ok := strings.CutPrefix(path, ResourceTasks+"/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// agendaSource yields one row per live task, joined with the list it belongs
// to. Tasks without a list still appear, with NULL list columns.
const agendaSource = `SELECT
	tasks._id AS _id,
	tasks.title AS title,
	tasks.dueDate AS dueDate,
	tasks.completed AS completed,
	tasks.notes AS notes,
	caldav_lists.cdl_id AS cdl_id,
	caldav_lists.cdl_name AS cdl_name,
	caldav_lists.cdl_color AS cdl_color
FROM tasks
LEFT JOIN caldav_tasks ON caldav_tasks.cd_task = tasks._id AND caldav_tasks.cd_deleted = 0
LEFT JOIN caldav_lists ON caldav_lists.cdl_uuid = caldav_tasks.cd_calendar
WHERE tasks.deleted = 0`

const listsSource = `SELECT cdl_id, cdl_name, cdl_color FROM caldav_lists`

// Resources returns the SQL backing each resource path, for serving the
// Tasks app database through a contentprovider.SQLiteResolver.
func Resources() map[string]string {
	return map[string]string{
		ResourceAgenda: agendaSource,
		ResourceLists:  listsSource,
	}
}

package db

import (
	"context"
	"github.com/uptrace/bun"
)

func InsertAutomationLog(ctx context.Context, connection bun.IDB, entry *AutomationLogModel) error {
	_, err := connection.NewInsert().Model(entry).Exec(ctx)

	return err
}

func GetAutomationLogs(ctx context.Context, connection bun.IDB, taskType string) (entries []*AutomationLogModel, err error) {
	err = connection.NewSelect().
		Model(&entries).
		Where("task_type = ?", taskType).
		Order("id").
		Scan(ctx)

	return entries, err
}

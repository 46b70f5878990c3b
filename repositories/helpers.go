package repositories

import (
	"database/sql"
	"fmt"

	"github.com/Dosada05/sabo-bracket/models"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}

func bumpVersions(matches []*models.Match) {
	for _, m := range matches {
		m.Version++
	}
}

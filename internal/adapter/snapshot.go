package adapter

import (
	"strings"

	"go.uber.org/zap"
)

// markForeignKeys 外键标记后处理：按全名定位源表，回退到裸表名，
// 找到后置位对应列的 IsForeignKey。找不到时打警告并保留约束记录。
func markForeignKeys(snap *SchemaSnapshot, logger *zap.Logger) {
	for _, fk := range snap.ForeignKeys {
		t := snap.findTable(fk.FromTable)
		if t == nil {
			logger.Warn("外键源表不在快照中",
				zap.String("constraint", fk.ConstraintName),
				zap.String("table", fk.FromTable))
			continue
		}

		marked := false
		for i := range t.Columns {
			if t.Columns[i].Name == fk.FromColumn {
				t.Columns[i].IsForeignKey = true
				marked = true
				break
			}
		}
		if !marked {
			logger.Warn("外键源列不在快照中",
				zap.String("constraint", fk.ConstraintName),
				zap.String("table", fk.FromTable),
				zap.String("column", fk.FromColumn))
		}
	}
}

// findTable 先按全限定名匹配，再回退裸表名
func (s *SchemaSnapshot) findTable(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].FullName() == name {
			return &s.Tables[i]
		}
	}

	bare := name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		bare = name[idx+1:]
	}
	for i := range s.Tables {
		if s.Tables[i].Name == bare {
			return &s.Tables[i]
		}
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putTask(t *testing.T, task *AnalysisTask) {
	t.Helper()
	tasksMu.Lock()
	tasks[task.ID] = task
	tasksMu.Unlock()
	t.Cleanup(func() {
		tasksMu.Lock()
		delete(tasks, task.ID)
		tasksMu.Unlock()
	})
}

func TestSnapshotTaskReturnsCopy(t *testing.T) {
	task := &AnalysisTask{ID: "t-copy", Status: "running", Progress: 10, CreatedAt: time.Now()}
	putTask(t, task)

	snap, exists := snapshotTask("t-copy")
	require.True(t, exists)

	// 快照是值拷贝，后续更新不影响已取出的副本
	tasksMu.Lock()
	task.Progress = 90
	task.Status = "completed"
	tasksMu.Unlock()

	assert.Equal(t, 10, snap.Progress)
	assert.Equal(t, "running", snap.Status)

	_, exists = snapshotTask("no-such-task")
	assert.False(t, exists)
}

func TestHandleTaskStatusConcurrentUpdates(t *testing.T) {
	task := &AnalysisTask{ID: "t-race", Status: "running", CreatedAt: time.Now()}
	putTask(t, task)

	// 模拟分析协程持锁更新进度
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			tasksMu.Lock()
			task.Progress = i
			task.Message = fmt.Sprintf("进度 %d", i)
			task.UpdatedAt = time.Now()
			tasksMu.Unlock()
		}
	}()

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/task/t-race", nil)
		rec := httptest.NewRecorder()
		handleTaskStatus(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got AnalysisTask
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "t-race", got.ID)
	}
	<-done
}

func TestHandleTaskStatusNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/task/missing", nil)
	rec := httptest.NewRecorder()
	handleTaskStatus(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// StudentSessionStartKey returns the cache key for a student's session-start
// timestamp; it is what lets the exam timer survive a page reload
func (r *CacheKeyStruct) StudentSessionStartKey(studentID int) string {
	return fmt.Sprintf("student:%d:session_start", studentID)
}

// StudentAnswersKey returns the cache key for a student's in-progress answers
func (r *CacheKeyStruct) StudentAnswersKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:answers", studentID, examID)
}

// StudentStatusChannel returns the Redis PubSub channel carrying a student's
// row snapshots (status + violation changes)
func (r *CacheKeyStruct) StudentStatusChannel(studentID int) string {
	return fmt.Sprintf("student:%d:status", studentID)
}

// ExamPaperKey returns the cache key for the student-facing exam payload
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// ExamAnswerKey returns the cache key for an exam's correct-answer map
func (r *CacheKeyStruct) ExamAnswerKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

var CacheKey = NewCacheKeyStruct()

// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// FileIngestTask represents the data structure for a knowledge file ingestion job.
type FileIngestTask struct {
	FileMD5  string `json:"file_md5"`
	FileName string `json:"file_name"`
	Office   string `json:"office"`
	UserID   uint   `json:"user_id"`
}

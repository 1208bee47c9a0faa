package service

import (
	"sync"

	"go-mediaflow/pkg/models"
)

// MockAssetStore is an in-memory AssetStore for testing
type MockAssetStore struct {
	mu        sync.RWMutex
	records   map[string]*models.AssetRecord
	SaveErr   error
	MergeErr  error
	DeleteErr error
	SaveCount int
}

func NewMockAssetStore() *MockAssetStore {
	return &MockAssetStore{
		records: make(map[string]*models.AssetRecord),
	}
}

func (m *MockAssetStore) Save(fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.SaveCount++
	if _, ok := m.records[fileName]; !ok {
		m.records[fileName] = &models.AssetRecord{
			FileName:   fileName,
			Attributes: make(map[string]string),
		}
	}
	return nil
}

func (m *MockAssetStore) MergeAttribute(fileName, attribute, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.MergeErr != nil {
		return m.MergeErr
	}
	record, ok := m.records[fileName]
	if !ok {
		record = &models.AssetRecord{
			FileName:   fileName,
			Attributes: make(map[string]string),
		}
		m.records[fileName] = record
	}
	record.Attributes[attribute] = value
	return nil
}

func (m *MockAssetStore) Delete(fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.records, fileName)
	return nil
}

func (m *MockAssetStore) Get(fileName string) (*models.AssetRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[fileName]
	if !ok {
		return nil, nil
	}
	copied := &models.AssetRecord{
		FileName:   record.FileName,
		Attributes: make(map[string]string, len(record.Attributes)),
	}
	for k, v := range record.Attributes {
		copied.Attributes[k] = v
	}
	return copied, nil
}

func (m *MockAssetStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// SentConfirmation records one confirmation send
type SentConfirmation struct {
	Bucket string
	Key    string
}

// MockMailer is a Mailer test double recording every send
type MockMailer struct {
	mu            sync.RWMutex
	Confirmations []SentConfirmation
	Rejections    []models.RejectionNotice
	ConfirmErr    error
	RejectErr     error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) SendConfirmation(bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ConfirmErr != nil {
		return m.ConfirmErr
	}
	m.Confirmations = append(m.Confirmations, SentConfirmation{Bucket: bucket, Key: key})
	return nil
}

func (m *MockMailer) SendRejection(notice models.RejectionNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RejectErr != nil {
		return m.RejectErr
	}
	m.Rejections = append(m.Rejections, notice)
	return nil
}

func (m *MockMailer) GetConfirmations() []SentConfirmation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sent := make([]SentConfirmation, len(m.Confirmations))
	copy(sent, m.Confirmations)
	return sent
}

func (m *MockMailer) GetRejections() []models.RejectionNotice {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sent := make([]models.RejectionNotice, len(m.Rejections))
	copy(sent, m.Rejections)
	return sent
}

package dummydb

import (
	"sync"

	"github.com/stationhq/firewatch/core/chat"
	"github.com/stationhq/firewatch/core/file"
	"github.com/stationhq/firewatch/core/status"
	"github.com/stationhq/firewatch/core/user"
)

type (
	DB struct {
		user         *userTable
		event        *eventTable
		conversation *conversationTable
		message      *messageTable
		file         *fileTable
	}

	userTable struct {
		sync.RWMutex
		table   map[int]*user.User
		pkCount int
	}

	eventTable struct {
		sync.RWMutex
		table   map[int]*status.Event
		pkCount int
	}

	conversationTable struct {
		sync.RWMutex
		table   map[int]*chat.Conversation
		pkCount int
	}

	messageTable struct {
		sync.RWMutex
		table   map[int]*chat.Message
		pkCount int
	}

	fileTable struct {
		sync.RWMutex
		table   map[int]*file.File
		pkCount int
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:         &userTable{table: make(map[int]*user.User)},
		event:        &eventTable{table: make(map[int]*status.Event)},
		conversation: &conversationTable{table: make(map[int]*chat.Conversation)},
		message:      &messageTable{table: make(map[int]*chat.Message)},
		file:         &fileTable{table: make(map[int]*file.File)},
	}
	return db, nil
}

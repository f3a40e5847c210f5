package block

import "sync"

// BlockID - непрозрачный 16-битный идентификатор блока/префаба.
// Поведение блоков здесь не моделируется, важно только хранение.
type BlockID uint16

const (
	// AirBlockID - пустая ячейка
	AirBlockID BlockID = 0

	// StockPrefabCount - число встроенных префабов в текущей ревизии каталога.
	// Пользовательские префабы нумеруются начиная с этого значения.
	StockPrefabCount BlockID = 597

	// NoGroup - GroupID префаба, не входящего в группу
	NoGroup BlockID = 0xFFFF
)

// IsAir проверяет, является ли блок пустым
func (id BlockID) IsAir() bool { return id == AirBlockID }

// IsStock сообщает, относится ли id к встроенному каталогу
func (id BlockID) IsStock() bool { return id != AirBlockID && id < StockPrefabCount }

// IsCustom сообщает, является ли id пользовательским префабом
func (id BlockID) IsCustom() bool { return id >= StockPrefabCount && id != NoGroup }

// CustomID возвращает id пользовательского префаба по его индексу в списке игры
func CustomID(index int) BlockID {
	return StockPrefabCount + BlockID(index)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[BlockID]string)
)

// Register добавляет имя блока в каталог
func Register(id BlockID, name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = name
}

// Name возвращает имя блока из каталога
func Name(id BlockID) (string, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	name, exists := registry[id]
	return name, exists
}

// IsValidBlockID проверяет, зарегистрирован ли идентификатор
func IsValidBlockID(id BlockID) bool {
	_, exists := Name(id)
	return exists
}

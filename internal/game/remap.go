package game

import "github.com/annel0/prefab-loader/internal/world/block"

// IDRemap переводит идентификатор блока из нумерации файла в текущую
type IDRemap func(block.BlockID) block.BlockID

// Identity не меняет идентификаторы
func Identity(id block.BlockID) block.BlockID { return id }

// OffsetRemap сдвигает пользовательские идентификаторы (>= fileOffset)
// на currentStock-fileOffset. Воздух и стоковые блоки не трогаются.
func OffsetRemap(fileOffset, currentStock uint16) IDRemap {
	if fileOffset == currentStock {
		return Identity
	}

	delta := int(currentStock) - int(fileOffset)
	return func(id block.BlockID) block.BlockID {
		if id.IsAir() || uint16(id) < fileOffset {
			return id
		}
		return block.BlockID(int(id) + delta)
	}
}

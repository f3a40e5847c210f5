package world

import (
	"fmt"
	"math/rand"

	"github.com/annel0/prefab-loader/internal/util"
	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world/block"
)

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
	BiomeDeepWater
)

// Константы высот для генерации
const (
	DeepWaterMax    = 0.20 // Ниже - глубинная вода
	ShallowWaterMax = 0.30 // Ниже - мелководье
	MountainStart   = 0.80 // Выше - горы
)

// Palette - идентификаторы блоков, из которых строится ландшафт.
// Нулевой идентификатор (воздух) отключает соответствующий элемент.
type Palette struct {
	Stone block.BlockID
	Dirt  block.BlockID
	Grass block.BlockID
	Sand  block.BlockID
	Water block.BlockID
	Tree  block.BlockID
}

// DefaultPalette - первые стоковые идентификаторы; для настоящего
// каталога игры палитра задаётся явно
var DefaultPalette = Palette{Stone: 1, Dirt: 2, Grass: 3, Sand: 4, Water: 5, Tree: 6}

// TerrainGenerator заполняет BlockData ландшафтом по карте высот
type TerrainGenerator struct {
	Seed          int64   // Сид для генерации шума
	NoiseScale    float64 // Масштаб основного шума (высота)
	BiomeScale    float64 // Масштаб шума биомов
	ForestDensity float64 // Плотность деревьев на равнинах (от 0 до 1)
	MaxHeight     int     // Максимальная высота столбца
	Palette       Palette

	height *util.Noise
	biome  *util.Noise
}

// NewTerrainGenerator создаёт генератор ландшафта
func NewTerrainGenerator(seed int64, palette Palette) *TerrainGenerator {
	return &TerrainGenerator{
		Seed:          seed,
		NoiseScale:    0.05, // Настройка сглаженности ландшафта
		BiomeScale:    0.02, // Настройка размера биомов
		ForestDensity: 0.05, // 5% шанс появления деревьев на равнинах
		MaxHeight:     16,
		Palette:       palette,
		height:        util.NewNoise(seed),
		biome:         util.NewNoise(seed + 42),
	}
}

// Generate строит ландшафт sizeX x sizeZ (Y - высота).
// Результат детерминирован для одного сида.
func (tg *TerrainGenerator) Generate(sizeX, sizeZ int) (*BlockData, error) {
	if sizeX <= 0 || sizeZ <= 0 || tg.MaxHeight <= 0 {
		return nil, fmt.Errorf("%w: terrain %dx%d, max height %d", ErrNegativePosition, sizeX, sizeZ, tg.MaxHeight)
	}

	bd := NewBlockData()
	// Один раз выделяем ёмкость на весь объём
	if err := bd.EnsureSize(vec.NewVec3(sizeX-1, tg.MaxHeight-1, sizeZ-1)); err != nil {
		return nil, err
	}

	// Локальный генератор случайных чисел для детерминированности
	rng := rand.New(rand.NewSource(tg.Seed))
	waterLevel := max(int(ShallowWaterMax*float64(tg.MaxHeight)), 1)

	for z := 0; z < sizeZ; z++ {
		for x := 0; x < sizeX; x++ {
			// Генерация высоты на основе шума Перлина
			h := tg.height.At(float64(x)*tg.NoiseScale, float64(z)*tg.NoiseScale)
			// Генерация значения для определения биома
			b := tg.biome.At(float64(x)*tg.BiomeScale, float64(z)*tg.BiomeScale)
			biome := getBiomeType(h, b)

			top := 1 + int(h*float64(tg.MaxHeight-1))
			tg.fillColumn(bd, x, z, top, biome)

			if biome == BiomeWater || biome == BiomeDeepWater {
				for y := top; y < waterLevel && y < tg.MaxHeight; y++ {
					bd.SetBlockUnchecked(vec.NewVec3(x, y, z), tg.Palette.Water)
				}
				continue
			}

			// На суше можем разместить деревья
			if top < tg.MaxHeight && tg.Palette.Tree != block.AirBlockID {
				if (biome == BiomeForest && rng.Float64() < 0.15) || // 15% шанс дерева в лесу
					(biome == BiomePlains && rng.Float64() < tg.ForestDensity) {
					bd.SetBlockUnchecked(vec.NewVec3(x, top, z), tg.Palette.Tree)
				}
			}
		}
	}

	bd.Trim()
	return bd, nil
}

// fillColumn заполняет столбец от 0 до top (не включая)
func (tg *TerrainGenerator) fillColumn(bd *BlockData, x, z, top int, biome BiomeType) {
	for y := 0; y < top; y++ {
		id := tg.Palette.Stone
		if y == top-1 {
			id = tg.surfaceBlock(biome)
		} else if y >= top-3 && biome != BiomeMountains {
			id = tg.Palette.Dirt
		}
		bd.SetBlockUnchecked(vec.NewVec3(x, y, z), id)
	}
}

// surfaceBlock возвращает верхний блок столбца для указанного биома
func (tg *TerrainGenerator) surfaceBlock(biome BiomeType) block.BlockID {
	switch biome {
	case BiomeDesert, BiomeWater, BiomeDeepWater:
		return tg.Palette.Sand
	case BiomeMountains:
		return tg.Palette.Stone
	default:
		return tg.Palette.Grass
	}
}

// getBiomeType определяет тип биома на основе значений шума
func getBiomeType(height, biomeValue float64) BiomeType {
	// Водные биомы в низинах
	if height < DeepWaterMax {
		return BiomeDeepWater
	}
	if height < ShallowWaterMax {
		return BiomeWater
	}

	// Горные биомы на возвышенностях
	if height > MountainStart {
		return BiomeMountains
	}

	// Для средних высот выбираем биом на основе biomeValue (0..1)
	if biomeValue < 0.35 {
		return BiomeDesert
	} else if biomeValue > 0.65 {
		return BiomeForest
	}

	return BiomePlains
}

package terrain

import (
	"sync/atomic"
)

// SelectLOD возвращает индекс уровня детализации для дистанции камеры:
// первый уровень, чья максимальная дистанция не меньше заданной.
// Дистанция за пределами всех порогов даёт самый грубый уровень.
func (b *Builder) SelectLOD(distance float64) int {
	for i, level := range b.levels {
		if distance <= level.MaxViewDistance {
			return i
		}
	}
	return len(b.levels) - 1
}

// SwitchLOD переключает активный уровень по дистанции камеры.
// Видимым остаётся ровно один меш; переключения считаются для
// диагностики. Возвращает индекс активного уровня.
func (b *Builder) SwitchLOD(distance float64) int {
	target := b.SelectLOD(distance)
	if target == b.activeLOD || len(b.meshes) == 0 {
		return b.activeLOD
	}

	b.meshes[b.activeLOD].Visible = false
	b.meshes[target].Visible = true
	b.activeLOD = target
	atomic.AddInt64(&b.lodSwitches, 1)

	b.log.Debug("Переключение LOD -> %d (дистанция %.1f)", target, distance)
	return target
}

// GetMesh возвращает меш указанного уровня детализации или nil.
func (b *Builder) GetMesh(lodLevel int) *Mesh {
	if lodLevel < 0 || lodLevel >= len(b.meshes) {
		return nil
	}
	return b.meshes[lodLevel]
}

// GetAllMeshes возвращает все уровни детализации.
// Все меши держатся в памяти ради мгновенного переключения.
func (b *Builder) GetAllMeshes() []*Mesh {
	return b.meshes
}

// ActiveLOD возвращает индекс видимого уровня.
func (b *Builder) ActiveLOD() int {
	return b.activeLOD
}

// LODSwitches возвращает счётчик переключений уровня детализации.
func (b *Builder) LODSwitches() int64 {
	return atomic.LoadInt64(&b.lodSwitches)
}

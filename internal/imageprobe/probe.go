// 包 imageprobe 通过读取 PNG/JPEG 文件头获得像素尺寸，不解码图像数据。
package imageprobe

import "encoding/binary"

// Dimensions 为图像宽高（像素）。
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47}

// Probe 识别格式并返回尺寸；无法识别或数据截断时 ok=false。
func Probe(b []byte) (Dimensions, bool) {
	if isPNG(b) {
		return probePNG(b)
	}
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return probeJPEG(b)
	}
	return Dimensions{}, false
}

// Format 返回识别到的格式名："png"、"jpeg" 或空串。
func Format(b []byte) string {
	switch {
	case isPNG(b):
		return "png"
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8:
		return "jpeg"
	}
	return ""
}

func isPNG(b []byte) bool {
	if len(b) < len(pngSignature) {
		return false
	}
	for i, c := range pngSignature {
		if b[i] != c {
			return false
		}
	}
	return true
}

// probePNG 读取 IHDR 中偏移 16/20 处的大端 32 位宽高。
func probePNG(b []byte) (Dimensions, bool) {
	if len(b) < 24 {
		return Dimensions{}, false
	}
	return Dimensions{
		Width:  int(binary.BigEndian.Uint32(b[16:20])),
		Height: int(binary.BigEndian.Uint32(b[20:24])),
	}, true
}

// probeJPEG 遍历标记段，遇到 SOF0–SOF3 时读取高度与宽度（高度在前）。
func probeJPEG(b []byte) (Dimensions, bool) {
	i := 2
	for i+1 < len(b) {
		if b[i] != 0xFF {
			return Dimensions{}, false
		}
		marker := b[i+1]
		switch {
		case marker == 0xFF:
			// 填充字节
			i++
			continue
		case marker == 0xD9:
			return Dimensions{}, false
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD8):
			// 无长度字段的独立标记
			i += 2
			continue
		case marker >= 0xC0 && marker <= 0xC3:
			// FF Cx | len(2) | precision(1) | height(2) | width(2)
			if i+9 > len(b) {
				return Dimensions{}, false
			}
			return Dimensions{
				Height: int(binary.BigEndian.Uint16(b[i+5 : i+7])),
				Width:  int(binary.BigEndian.Uint16(b[i+7 : i+9])),
			}, true
		}
		if i+4 > len(b) {
			return Dimensions{}, false
		}
		segLen := int(binary.BigEndian.Uint16(b[i+2 : i+4]))
		if segLen < 2 {
			return Dimensions{}, false
		}
		i += 2 + segLen
	}
	return Dimensions{}, false
}

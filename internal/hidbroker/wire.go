package hidbroker

import (
	"encoding/binary"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
)

// EncodeInputReport serializes an InputReportMessage for the dedicated
// input ring's fast path: {device_id u32, report_id u8, ts_ms u64,
// data_len u32, data[data_len]}.
func EncodeInputReport(msg protocol.InputReportMessage) []byte {
	buf := make([]byte, 4+1+8+4+len(msg.Data))
	binary.LittleEndian.PutUint32(buf[0:4], msg.DeviceID)
	buf[4] = msg.ReportID
	binary.LittleEndian.PutUint64(buf[5:13], msg.TsMs)
	binary.LittleEndian.PutUint32(buf[13:17], uint32(len(msg.Data)))
	copy(buf[17:], msg.Data)
	return buf
}

// DecodeInputReport is the inverse of EncodeInputReport. ok is false on a
// truncated or malformed record (spec §7 protocol violation: drop, don't
// crash).
func DecodeInputReport(buf []byte) (protocol.InputReportMessage, bool) {
	if len(buf) < 17 {
		return protocol.InputReportMessage{}, false
	}
	deviceID := binary.LittleEndian.Uint32(buf[0:4])
	reportID := buf[4]
	tsMs := binary.LittleEndian.Uint64(buf[5:13])
	dataLen := binary.LittleEndian.Uint32(buf[13:17])
	if uint32(len(buf)-17) < dataLen {
		return protocol.InputReportMessage{}, false
	}
	data := append([]byte(nil), buf[17:17+dataLen]...)
	return protocol.InputReportMessage{DeviceID: deviceID, ReportID: reportID, TsMs: tsMs, Data: data}, true
}

// EncodeSendReport serializes a SendReportMessage for the output ring:
// {device_id u32, report_id u8, report_type u8, data_len u32, data[...]}.
func EncodeSendReport(msg protocol.SendReportMessage) []byte {
	buf := make([]byte, 4+1+1+4+len(msg.Data))
	binary.LittleEndian.PutUint32(buf[0:4], msg.DeviceID)
	buf[4] = msg.ReportID
	buf[5] = byte(msg.ReportType)
	binary.LittleEndian.PutUint32(buf[6:10], uint32(len(msg.Data)))
	copy(buf[10:], msg.Data)
	return buf
}

// DecodeSendReport is the inverse of EncodeSendReport.
func DecodeSendReport(buf []byte) (protocol.SendReportMessage, bool) {
	if len(buf) < 10 {
		return protocol.SendReportMessage{}, false
	}
	deviceID := binary.LittleEndian.Uint32(buf[0:4])
	reportID := buf[4]
	reportType := protocol.ReportType(buf[5])
	dataLen := binary.LittleEndian.Uint32(buf[6:10])
	if uint32(len(buf)-10) < dataLen {
		return protocol.SendReportMessage{}, false
	}
	data := append([]byte(nil), buf[10:10+dataLen]...)
	return protocol.SendReportMessage{DeviceID: deviceID, ReportID: reportID, ReportType: reportType, Data: data}, true
}
